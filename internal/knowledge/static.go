package knowledge

import (
	"context"
	"sort"
	"strings"
)

// Static is an in-process Retriever over a fixed set of snippets. It
// backs deployments without a vector database and the test suite. Scoring
// is naive term overlap; good enough for the built-in corpus.
type Static struct {
	snippets []Snippet
}

// NewStatic returns a retriever over the given snippets, or over the
// built-in corpus when none are given.
func NewStatic(snippets ...Snippet) *Static {
	if len(snippets) == 0 {
		snippets = builtinCorpus
	}
	return &Static{snippets: snippets}
}

func (s *Static) Retrieve(_ context.Context, query, category string, limit int) ([]Snippet, error) {
	if limit <= 0 {
		limit = 3
	}
	terms := strings.Fields(strings.ToLower(query))

	var out []Snippet
	for _, sn := range s.snippets {
		if category != "" && sn.Category != category {
			continue
		}
		text := strings.ToLower(sn.Title + " " + sn.Content)
		var hits int
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		sn.Score = float64(hits) / float64(len(terms))
		out = append(out, sn)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Categories used across the knowledge base.
const (
	CategoryCBT             = "cbt_exercise"
	CategoryPsychoeducation = "psychoeducation"
	CategoryCrisisProtocol  = "crisis_protocol"
	CategoryGeneral         = "general"
)

// Builtin returns a copy of the bundled corpus, for seeding an external
// knowledge base.
func Builtin() []Snippet {
	out := make([]Snippet, len(builtinCorpus))
	copy(out, builtinCorpus)
	return out
}

var builtinCorpus = []Snippet{
	{
		Title:    "Thought Record Sheet",
		Category: CategoryCBT,
		Source:   "NHS CBT skills training",
		Content: "A thought record helps you examine distressing thoughts step by step. " +
			"1) Describe the situation. 2) Note the emotion and rate its intensity 0-100. " +
			"3) Write the automatic thought. 4) List evidence for and against it. " +
			"5) Write a balanced alternative thought. 6) Re-rate the emotion.",
	},
	{
		Title:    "Behavioral Activation Worksheet",
		Category: CategoryCBT,
		Source:   "NHS CBT skills training",
		Content: "Depression shrinks activity, and inactivity deepens depression. " +
			"Schedule one small, achievable activity each day that gives a sense of pleasure or mastery. " +
			"Rate your mood before and after. Start smaller than feels necessary.",
	},
	{
		Title:    "Triggers and Coping Worksheet",
		Category: CategoryCBT,
		Source:   "SAMHSA treatment materials",
		Content: "Identify the people, places, feelings, and times of day that trigger urges to use. " +
			"For each trigger, plan one coping response in advance: delay, distract, call support, leave the situation. " +
			"Urges rise, peak, and pass; most pass within 20 to 30 minutes.",
	},
	{
		Title:    "Understanding Cognitive Distortions",
		Category: CategoryPsychoeducation,
		Source:   "NHS self-help guides",
		Content: "Common unhelpful thinking patterns include all-or-nothing thinking, catastrophizing, " +
			"mind reading, emotional reasoning, and should statements. Noticing the pattern by name " +
			"is the first step to loosening its grip.",
	},
	{
		Title:    "Anxiety Self-Help Guide",
		Category: CategoryPsychoeducation,
		Source:   "NHS self-help guides",
		Content: "Anxiety is the body's alarm system firing without real danger. Slow breathing " +
			"(four counts in, six counts out), grounding with the five senses, and gradual exposure " +
			"to avoided situations all reduce the alarm over time.",
	},
	{
		Title:    "The Addiction Cycle",
		Category: CategoryPsychoeducation,
		Source:   "SAMHSA treatment materials",
		Content: "Substance use disorder is a chronic, relapsing health condition, not a moral failing. " +
			"The cycle runs trigger, craving, use, relief, guilt. Recovery works by interrupting the cycle " +
			"at any point, and different pathways to recovery exist. Treatment works.",
	},
	{
		Title:    "Crisis Protocol: Moderate Risk",
		Category: CategoryCrisisProtocol,
		Source:   "Crisis intervention protocols",
		Content: "Validate the person's distress without minimizing it. Offer specific coping strategies " +
			"and encourage contact with a mental health professional. Share the 988 Suicide and Crisis " +
			"Lifeline (call or text 988) as a resource for difficult moments.",
	},
	{
		Title:    "Crisis Protocol: High Risk",
		Category: CategoryCrisisProtocol,
		Source:   "Crisis intervention protocols",
		Content: "Provide crisis resources directly: call or text 988 (Suicide and Crisis Lifeline), " +
			"or text HOME to 741741 (Crisis Text Line). Help the person identify one safe person to contact. " +
			"Encourage removing access to lethal means. The care team should be notified.",
	},
	{
		Title:    "Crisis Protocol: Imminent Risk",
		Category: CategoryCrisisProtocol,
		Source:   "Crisis intervention protocols",
		Content: "Safety comes first. If you are in immediate danger, call 911 or go to the nearest " +
			"emergency room now. Call or text 988 to reach the Suicide and Crisis Lifeline. " +
			"Stay with someone or ask someone to stay with you until help arrives.",
	},
	{
		Title:    "Overdose Prevention and Response",
		Category: CategoryCrisisProtocol,
		Source:   "SAMHSA overdose prevention toolkit",
		Content: "Signs of opioid overdose: unresponsiveness, slow or stopped breathing, blue lips or fingertips. " +
			"Call 911 immediately, give naloxone if available, and stay until help arrives. " +
			"Never use alone; alcohol and benzodiazepine withdrawal can be life-threatening and needs medical supervision.",
	},
	{
		Title:    "Finding Support",
		Category: CategoryGeneral,
		Source:   "SAMHSA national helpline",
		Content: "SAMHSA's National Helpline, 1-800-662-4357, is free, confidential, and available 24/7 " +
			"for treatment referral and information about mental health and substance use disorders.",
	},
}
