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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/studyhall-app/studyhall/internal/adapter/repository"
	"github.com/studyhall-app/studyhall/internal/entity"
	"github.com/studyhall-app/studyhall/internal/infrastructure/config"
	"github.com/studyhall-app/studyhall/internal/infrastructure/database"
	"github.com/studyhall-app/studyhall/internal/infrastructure/server"
)

// dbInitCmd creates or updates the database schema
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create or update the database schema",
	Long:  "Runs the schema migration against the configured database. With --demo a sample user and deck are seeded so a fresh install has something to review.",
	RunE: func(cmd *cobra.Command, args []string) error {
		demo, _ := cmd.Flags().GetBool("demo")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := server.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		db, cleanup, err := database.Open(cfg, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer cleanup()

		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		cmd.Println("database migration complete")

		if !demo {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := seedDemoData(ctx, db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		cmd.Printf("demo deck seeded: %s\n", demoDeckID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().Bool("demo", false, "seed a demo user and deck after migrating")
}

const (
	demoSubject = "demo|studyhall"
	demoDeckID  = "dk_demo"
)

// seedDemoData creates the demo user and deck once; reruns are no-ops.
func seedDemoData(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()

	users := repository.NewUserRepository(db)
	user, err := users.GetBySubject(ctx, demoSubject)
	if errors.Is(err, entity.ErrUserNotFound) {
		user, err = users.Create(ctx, &entity.User{
			Subject:   demoSubject,
			Nickname:  "Demo",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		return err
	}

	decks := repository.NewDeckRepository(db)
	if _, err := decks.GetByPublicID(ctx, user.ID, demoDeckID); err == nil {
		return nil
	} else if !errors.Is(err, entity.ErrDeckNotFound) {
		return err
	}

	deck, err := decks.Create(ctx, demoDeck(user.ID, now))
	if err != nil {
		return err
	}
	for _, card := range demoCards(deck.ID, now) {
		if _, err := decks.CreateCard(ctx, card); err != nil {
			return err
		}
	}
	return nil
}

func demoDeck(userID int64, now time.Time) *entity.Deck {
	return &entity.Deck{
		PublicID:    demoDeckID,
		UserID:      userID,
		Title:       "Getting Started",
		Description: "A short deck to try out quiz and flashcard review.",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func demoCards(deckID int64, now time.Time) []*entity.Card {
	cards := []*entity.Card{
		{
			Prompt:      "What does the reveal action do in flashcard mode?",
			Answer:      "It shows the expected answer for the current card.",
			Explanation: "Rating becomes available once the answer is visible.",
		},
		{
			Prompt:      "Which ratings can you give after seeing an answer?",
			Answer:      "Bad, Average, Good or Excellent.",
			Explanation: "Every rating advances the session by exactly one card.",
		},
		{
			Prompt: "What happens when you rate the last card?",
			Answer: "The session completes and a study record is saved for the deck.",
		},
	}
	for i, card := range cards {
		card.DeckID = deckID
		card.Position = int32(i + 1)
		card.CreatedAt = now
		card.UpdatedAt = now
	}
	return cards
}
