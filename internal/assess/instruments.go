// Package assess implements scoring for the standardized screening
// instruments Haven administers: PHQ-9, GAD-7, DAST-10, and CAGE.
package assess

import "github.com/havenproj/haven/internal/domain"

// Band maps a contiguous total-score range to a severity label.
type Band struct {
	Min   int
	Max   int
	Label string
}

// Instrument describes one screening instrument: its item prompts, valid
// per-item range, and severity bands. Bands are ordered, non-overlapping,
// and exhaustive over [0, MaxScore].
type Instrument struct {
	Kind         domain.AssessmentKind
	Title        string
	Instructions string
	Scale        string
	Questions    []string
	ItemMin      int
	ItemMax      int
	MaxScore     int
	Bands        []Band

	// ReverseItem is the 1-based index of an item whose "no" answer
	// scores a point instead of "yes" (DAST-10 item 3), or 0.
	ReverseItem int

	// RiskItem is the 1-based index of the self-harm item (PHQ-9
	// item 9), or 0 for instruments without one.
	RiskItem int

	// Note is extra administration text shown with the questionnaire.
	Note string
}

// ItemCount returns the number of items the instrument requires.
func (in Instrument) ItemCount() int { return len(in.Questions) }

var phq9 = Instrument{
	Kind:         domain.KindPHQ9,
	Title:        "PHQ-9 Depression Screening",
	Instructions: "Over the last 2 weeks, how often have you been bothered by any of the following problems?",
	Scale:        "0 = Not at all, 1 = Several days, 2 = More than half the days, 3 = Nearly every day",
	Questions: []string{
		"Little interest or pleasure in doing things?",
		"Feeling down, depressed, or hopeless?",
		"Trouble falling or staying asleep, or sleeping too much?",
		"Feeling tired or having little energy?",
		"Poor appetite or overeating?",
		"Feeling bad about yourself - or that you are a failure or have let yourself or your family down?",
		"Trouble concentrating on things, such as reading the newspaper or watching television?",
		"Moving or speaking so slowly that other people could have noticed? Or the opposite - being so fidgety or restless that you have been moving around a lot more than usual?",
		"Thoughts that you would be better off dead, or of hurting yourself in some way?",
	},
	ItemMin:  0,
	ItemMax:  3,
	MaxScore: 27,
	RiskItem: 9,
	Bands: []Band{
		{0, 4, "Minimal or no depression"},
		{5, 9, "Mild depression"},
		{10, 14, "Moderate depression"},
		{15, 19, "Moderately severe depression"},
		{20, 27, "Severe depression"},
	},
}

var gad7 = Instrument{
	Kind:         domain.KindGAD7,
	Title:        "GAD-7 Anxiety Screening",
	Instructions: "Over the last 2 weeks, how often have you been bothered by the following problems?",
	Scale:        "0 = Not at all, 1 = Several days, 2 = More than half the days, 3 = Nearly every day",
	Questions: []string{
		"Feeling nervous, anxious, or on edge?",
		"Not being able to stop or control worrying?",
		"Worrying too much about different things?",
		"Trouble relaxing?",
		"Being so restless that it's hard to sit still?",
		"Becoming easily annoyed or irritable?",
		"Feeling afraid as if something awful might happen?",
	},
	ItemMin:  0,
	ItemMax:  3,
	MaxScore: 21,
	Bands: []Band{
		{0, 4, "Minimal anxiety"},
		{5, 9, "Mild anxiety"},
		{10, 14, "Moderate anxiety"},
		{15, 21, "Severe anxiety"},
	},
}

var dast10 = Instrument{
	Kind:         domain.KindDAST10,
	Title:        "DAST-10 Drug Use Screening",
	Instructions: "The following questions concern information about your potential involvement with drugs excluding alcohol and tobacco during the past 12 months. When the words 'drug use' are used, they mean the use of prescribed or over-the-counter medications used in excess of directions and any non-medical use of drugs.",
	Scale:        "Please answer Yes (1) or No (0) to each question",
	Questions: []string{
		"Have you used drugs other than those required for medical reasons?",
		"Do you abuse more than one drug at a time?",
		"Are you always able to stop using drugs when you want to?",
		"Have you had 'blackouts' or 'flashbacks' as a result of drug use?",
		"Do you ever feel bad or guilty about your drug use?",
		"Does your spouse (or parents) ever complain about your involvement with drugs?",
		"Have you neglected your family because of your use of drugs?",
		"Have you engaged in illegal activities in order to obtain drugs?",
		"Have you ever experienced withdrawal symptoms (felt sick) when you stopped taking drugs?",
		"Have you had medical problems as a result of your drug use (e.g., memory loss, hepatitis, convulsions, bleeding, etc.)?",
	},
	ItemMin:     0,
	ItemMax:     1,
	MaxScore:    10,
	ReverseItem: 3,
	Note:        "Different drugs include: cannabis, cocaine, prescription stimulants, methamphetamine, inhalants, sedatives, hallucinogens, opioids, or others.",
	Bands: []Band{
		{0, 2, "Low level of problems related to drug use"},
		{3, 5, "Moderate level of problems related to drug use"},
		{6, 8, "Substantial level of problems related to drug use"},
		{9, 10, "Severe level of problems related to drug use"},
	},
}

var cage = Instrument{
	Kind:         domain.KindCAGE,
	Title:        "CAGE Alcohol Screening",
	Instructions: "Please answer the following questions about your alcohol use:",
	Scale:        "Please answer Yes (1) or No (0) to each question",
	Questions: []string{
		"Have you ever felt you should Cut down on your drinking?",
		"Have people Annoyed you by criticizing your drinking?",
		"Have you ever felt bad or Guilty about your drinking?",
		"Have you ever had a drink first thing in the morning to steady your nerves or get rid of a hangover (Eye-opener)?",
	},
	ItemMin:  0,
	ItemMax:  1,
	MaxScore: 4,
	Bands: []Band{
		{0, 1, "Low risk of alcohol dependence"},
		{2, 4, "High risk of alcohol dependence"},
	},
}

var instruments = map[domain.AssessmentKind]Instrument{
	domain.KindPHQ9:   phq9,
	domain.KindGAD7:   gad7,
	domain.KindDAST10: dast10,
	domain.KindCAGE:   cage,
}

// Lookup returns the instrument for a kind.
func Lookup(kind domain.AssessmentKind) (Instrument, bool) {
	in, ok := instruments[kind]
	return in, ok
}

// All returns every registered instrument.
func All() []Instrument {
	out := make([]Instrument, 0, len(instruments))
	for _, k := range domain.Kinds {
		out = append(out, instruments[k])
	}
	return out
}
