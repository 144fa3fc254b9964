package assess

import (
	"fmt"
	"strings"
	"time"

	"github.com/havenproj/haven/internal/domain"
)

// RenderQuestionnaire formats the full instrument for presentation to
// the user.
func RenderQuestionnaire(in Instrument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n%s\n%s\n\n", in.Title, in.Instructions, in.Scale)

	if in.Note != "" {
		b.WriteString(in.Note)
		b.WriteString("\n\n")
	}

	for i, q := range in.Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	b.WriteString("\n")
	if in.ItemMax > 1 {
		b.WriteString("Please respond with your rating (0-3) for each question, either in a list format or one by one.")
	} else {
		b.WriteString("Please respond with Yes or No for each question, either in a list format or one by one.")
	}
	return b.String()
}

// RenderReport formats a scored result with severity-specific
// recommendations and, when a previous record exists, the score change.
func RenderReport(res Result, previous *domain.AssessmentRecord) string {
	in, _ := Lookup(res.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Results\n", in.Title)
	fmt.Fprintf(&b, "Total Score: %d/%d\n", res.Total, res.MaxScore)
	fmt.Fprintf(&b, "Interpretation: %s\n\n", res.Severity)

	if previous != nil {
		change := res.Total - previous.Total
		var changeText string
		switch {
		case change > 0:
			changeText = fmt.Sprintf("increased by %d", change)
		case change < 0:
			changeText = fmt.Sprintf("decreased by %d", -change)
		default:
			changeText = "remained the same"
		}
		fmt.Fprintf(&b, "Change: Your score has %s since your last assessment (%s).\n\n",
			changeText, previous.Timestamp.Format(time.DateOnly))
	}

	b.WriteString("## Recommendations:\n")

	if res.Kind == domain.KindPHQ9 && res.RiskSignal > 0 {
		b.WriteString("**Important Safety Note**: Your response indicates thoughts about self-harm or suicide. " +
			"This is important to address right away. Please consider talking to a mental health professional " +
			"as soon as possible. If you're in immediate danger, please call emergency services or a crisis line.\n\n")
	}

	b.WriteString(recommendation(res.Kind, res.Total))

	if res.Kind == domain.KindDAST10 || res.Kind == domain.KindCAGE {
		b.WriteString("\n\nThe SAMHSA National Helpline offers free, confidential, 24/7/365 treatment referral " +
			"and information services for individuals facing substance use disorders: 1-800-662-HELP (4357)")
	}

	b.WriteString("\n\nI'm here to support you. Would you like to talk more about these results or explore coping strategies?")
	return b.String()
}

func recommendation(kind domain.AssessmentKind, total int) string {
	switch kind {
	case domain.KindPHQ9:
		switch {
		case total < 5:
			return "Your symptoms suggest minimal or no depression. Continue with self-care practices."
		case total < 10:
			return "Your symptoms suggest mild depression. Consider watchful waiting, self-help resources, or support groups."
		case total < 15:
			return "Your symptoms suggest moderate depression. Consider psychotherapy, counseling, or speaking with your doctor."
		case total < 20:
			return "Your symptoms suggest moderately severe depression. Active treatment with psychotherapy and/or medication is recommended."
		default:
			return "Your symptoms suggest severe depression. Immediate initiation of treatment is recommended, combining psychotherapy and medication."
		}
	case domain.KindGAD7:
		switch {
		case total < 5:
			return "Your symptoms suggest minimal anxiety. Continue with self-care practices."
		case total < 10:
			return "Your symptoms suggest mild anxiety. Consider self-help resources or monitoring symptoms."
		case total < 15:
			return "Your symptoms suggest moderate anxiety. Consider speaking with a healthcare provider about treatment options."
		default:
			return "Your symptoms suggest severe anxiety. Active treatment with a healthcare provider is recommended."
		}
	case domain.KindDAST10:
		switch {
		case total < 3:
			return "Your responses suggest a low level of problems related to drug use. Monitor your use and consider preventative education."
		case total < 6:
			return "Your responses suggest a moderate level of problems related to drug use. Consider a brief intervention or counseling."
		case total < 9:
			return "Your responses suggest a substantial level of problems related to drug use. A more thorough assessment by a healthcare professional is recommended."
		default:
			return "Your responses suggest a severe level of problems related to drug use. Intensive assessment and treatment is strongly recommended."
		}
	case domain.KindCAGE:
		if total < 2 {
			return "Your responses suggest a low risk of alcohol dependence. Continue to monitor your drinking habits."
		}
		return "Your responses suggest a high risk of alcohol dependence. A more thorough assessment by a healthcare professional is recommended."
	}
	return ""
}
