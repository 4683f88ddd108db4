/*
Copyright © 2026 The Studyhall Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/studyhall-app/studyhall/internal/adapter/memory"
	"github.com/studyhall-app/studyhall/internal/adapter/repository"
	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/infrastructure/config"
	"github.com/studyhall-app/studyhall/internal/infrastructure/database"
	"github.com/studyhall-app/studyhall/internal/usecase"
)

// reviewCmd drives a review session in the terminal, through the same
// session machinery the HTTP API uses. Completed sessions land in the
// study history like any other.
var reviewCmd = &cobra.Command{
	Use:   "review <deck-id>",
	Short: "Study a deck from the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		subject, _ := cmd.Flags().GetString("user")

		mode, err := entity.ParseSessionMode(modeFlag)
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Keep the terminal clean for the cards.
		logger := logrus.New()
		logger.SetOutput(io.Discard)

		db, cleanup, err := database.Open(cfg, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer cleanup()

		deckRepo := repository.NewDeckRepository(db)
		recordRepo := repository.NewStudyRecordRepository(db)
		users := usecase.NewUserUsecase(repository.NewUserRepository(db))
		sessions := usecase.NewSessionUsecase(memory.NewSessionStore(), deckRepo, recordRepo, logger)

		ctx := cmd.Context()
		user, err := users.Sync(ctx, subject, "")
		if err != nil {
			return fmt.Errorf("resolve user: %w", err)
		}

		state, err := sessions.Start(ctx, user.ID, args[0], mode)
		if err != nil {
			return err
		}
		return runReviewLoop(ctx, cmd, sessions, user.ID, state)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("mode", "flashcard", "review mode: flashcard or quiz")
	reviewCmd.Flags().String("user", "local", "subject of the studying user")
}

func runReviewLoop(ctx context.Context, cmd *cobra.Command, sessions usecase.SessionUsecase, userID int64, state *usecase.SessionState) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	for !state.View.Complete {
		view := state.View
		fmt.Fprintf(out, "\n[%d/%d] %s\n", view.Index+1, view.Total, view.Item.Prompt)

		var err error
		switch state.Mode {
		case entity.ModeQuiz:
			answer := ""
			for strings.TrimSpace(answer) == "" {
				fmt.Fprint(out, "your answer: ")
				if !in.Scan() {
					return scannerErr(in)
				}
				answer = in.Text()
			}
			state, err = sessions.SubmitAnswer(ctx, userID, state.ID, answer)
		default:
			fmt.Fprint(out, "press enter to reveal ")
			if !in.Scan() {
				return scannerErr(in)
			}
			state, err = sessions.Reveal(ctx, userID, state.ID)
		}
		if err != nil {
			return err
		}

		view = state.View
		fmt.Fprintf(out, "answer: %s\n", view.Item.ExpectedAnswer)
		if view.Item.Explanation != "" {
			fmt.Fprintf(out, "why: %s\n", view.Item.Explanation)
		}

		rating, err := promptRating(out, in)
		if err != nil {
			return err
		}
		state, err = sessions.Rate(ctx, userID, state.ID, rating)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s)\n", rating, rating.Feedback())
	}

	fmt.Fprintf(out, "\ndeck complete: %d cards\n", state.Progress.TotalItems)
	for _, rating := range []entity.Rating{entity.RatingBad, entity.RatingAverage, entity.RatingGood, entity.RatingExcellent} {
		if n := state.Ratings[rating]; n > 0 {
			fmt.Fprintf(out, "  %-9s %d\n", rating, n)
		}
	}
	return nil
}

func promptRating(out io.Writer, in *bufio.Scanner) (entity.Rating, error) {
	for {
		fmt.Fprint(out, "rate [1=bad 2=average 3=good 4=excellent]: ")
		if !in.Scan() {
			return 0, scannerErr(in)
		}
		switch strings.TrimSpace(in.Text()) {
		case "1":
			return entity.RatingBad, nil
		case "2":
			return entity.RatingAverage, nil
		case "3":
			return entity.RatingGood, nil
		case "4":
			return entity.RatingExcellent, nil
		}
		if rating, err := entity.ParseRating(strings.TrimSpace(in.Text())); err == nil {
			return rating, nil
		}
	}
}

func scannerErr(in *bufio.Scanner) error {
	if err := in.Err(); err != nil {
		return err
	}
	return errors.New("input closed")
}
