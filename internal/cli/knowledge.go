package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/havenproj/haven/internal/config"
	"github.com/havenproj/haven/internal/knowledge"
)

func newKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the knowledge base",
	}

	cmd.AddCommand(newKnowledgeSeedCmd())
	return cmd
}

func newKnowledgeSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the configured Weaviate instance with the builtin corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Knowledge.Backend != "weaviate" || cfg.Knowledge.URL == "" {
				return fmt.Errorf("knowledge.backend must be weaviate with a url to seed")
			}

			w, err := knowledge.NewWeaviate(cfg.Knowledge.URL, cfg.Knowledge.ClassName, log)
			if err != nil {
				return err
			}

			corpus := knowledge.Builtin()
			if err := w.Seed(context.Background(), corpus); err != nil {
				return err
			}
			fmt.Printf("seeded %d snippets\n", len(corpus))
			return nil
		},
	}
}
