package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQuestionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "question [code]",
		Short: "Show the room's active question",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := resolveCode(args)
			if err != nil {
				return err
			}

			var result Question
			if err := client.Get("/api/v1/rooms/"+code+"/question", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAnswerCmd() *cobra.Command {
	var playerID string
	var questionID string

	cmd := &cobra.Command{
		Use:   "answer <option>",
		Short: "Answer the active question with an option index (0-3)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("option must be a number: %w", err)
			}

			code, err := resolveCode(nil)
			if err != nil {
				return err
			}
			pid, err := resolvePlayerID(playerID)
			if err != nil {
				return err
			}

			// Look up the active question unless one was given explicitly
			qid := questionID
			if qid == "" {
				var question Question
				if err := client.Get("/api/v1/rooms/"+code+"/question", &question); err != nil {
					return err
				}
				qid = question.ID
			}

			var result Answer
			body := map[string]any{
				"player_id":       pid,
				"question_id":     qid,
				"selected_answer": selected,
			}
			if err := client.Post("/api/v1/rooms/"+code+"/answers", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player ID (defaults to saved state)")
	cmd.Flags().StringVar(&questionID, "question", "", "Question ID (defaults to the active question)")

	return cmd
}
