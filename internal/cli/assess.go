package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/havenproj/haven/internal/assess"
	"github.com/havenproj/haven/internal/domain"
)

func newAssessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Work with screening instruments from the command line",
	}

	cmd.AddCommand(newAssessListCmd())
	cmd.AddCommand(newAssessShowCmd())
	cmd.AddCommand(newAssessScoreCmd())
	return cmd
}

func newAssessListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported instruments",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, in := range assess.All() {
				fmt.Printf("%-8s %s (%d items)\n", in.Kind, in.Title, in.ItemCount())
			}
		},
	}
}

func newAssessShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <instrument>",
		Short: "Print an instrument's questionnaire",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.AssessmentKind(args[0])
			in, ok := assess.Lookup(kind)
			if !ok {
				return fmt.Errorf("unknown instrument %q, try: haven assess list", args[0])
			}
			fmt.Println(assess.RenderQuestionnaire(in))
			return nil
		},
	}
}

func newAssessScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <instrument> <answers...>",
		Short: "Score an answer vector for an instrument",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.AssessmentKind(args[0])
			items := make([]int, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("answer %q is not a number", raw)
				}
				items = append(items, v)
			}

			res, err := assess.Score(kind, items)
			if err != nil {
				return err
			}
			fmt.Println(assess.RenderReport(res, nil))
			return nil
		},
	}
}
