package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "topiccut",
		Short:        "Select topic highlights from clip transcripts and consolidate their timeframes",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	sel := &cobra.Command{
		Use:   "select",
		Short: "Ask the model for the part of a transcript matching a topic and store it",
		Args:  cobra.NoArgs,
		RunE:  runSelect,
	}
	sel.Flags().String("clip", "", "Clip id (transcript at videos/<clip>/Transcript.json)")
	sel.Flags().String("index", "", "Highlight index within the clip")
	sel.Flags().String("topic", "", "Target topic")
	sel.Flags().StringSlice("topics", nil, "All topics of the clip (comma separated)")
	sel.Flags().String("topics-file", "", "YAML file with the topics list")
	sel.Flags().String("model", "", "Model id (defaults to MODEL_ID)")
	sel.Flags().String("owner", "", "Owner recorded on the highlight")
	sel.Flags().String("strategy", "index", "Selection strategy: index or direct")
	_ = sel.MarkFlagRequired("clip")
	_ = sel.MarkFlagRequired("index")
	_ = sel.MarkFlagRequired("topic")

	con := &cobra.Command{
		Use:   "consolidate",
		Short: "Sort a selected highlight's timeframes and compute duration and timecodes",
		Args:  cobra.NoArgs,
		RunE:  runConsolidate,
	}
	con.Flags().String("clip", "", "Clip id")
	con.Flags().String("index", "", "Highlight index within the clip")
	_ = con.MarkFlagRequired("clip")
	_ = con.MarkFlagRequired("index")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve both steps over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serve.Flags().String("addr", ":8080", "Listen address")

	root.AddCommand(sel, con, serve)
	return root
}
