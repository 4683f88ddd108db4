package httpapi

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"

	"github.com/studyhall-app/studyhall/internal/entity"
)

func (h *Handlers) exportDeck(c *gin.Context) {
	userID := currentUserID(c)
	publicID := c.Param("id")

	deck, err := h.decks.Get(c.Request.Context(), userID, publicID)
	if err != nil {
		respondError(c, err)
		return
	}
	cards, err := h.decks.ListCards(c.Request.Context(), userID, publicID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "deck-"+publicID+".pdf"))
	if err := writeDeckPDF(c.Writer, deck, cards); err != nil {
		h.logger.WithError(err).WithField("deck", publicID).Error("Failed to render deck PDF")
	}
}

// writeDeckPDF renders a printable study sheet: the deck header followed by
// one numbered prompt/answer block per card.
func writeDeckPDF(w io.Writer, deck *entity.Deck, cards []*entity.Card) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(deck.Title), true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 9, tr(deck.Title), "", "L", false)
	if deck.Description != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 6, tr(deck.Description), "", "L", false)
	}
	pdf.Ln(4)

	for i, card := range cards {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, card.Prompt)), "", "L", false)

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(card.Answer), "", "L", false)

		if card.Explanation != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, tr(card.Explanation), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(3)
	}

	return pdf.Output(w)
}
