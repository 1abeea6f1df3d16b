package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/tarot"
)

// Depth controls how long and how detailed the generated reading is.
type Depth string

const (
	DepthShort    Depth = "short"    // 1-2 sentence teaser
	DepthStandard Depth = "standard" // daily free deep-dive light
	DepthDeep     Depth = "deep"     // full paid reading
)

type Request struct {
	Spread    tarot.SpreadType
	Cards     []tarot.Card
	Positions []string
	Depth     Depth
}

// Interpreter turns a drawn spread into natural-language reading text.
type Interpreter interface {
	Interpret(ctx context.Context, req Request) (string, error)
}

// ErrUnavailable wraps upstream completion failures so callers can map them to
// a retryable provider error instead of leaking transport details.
var ErrUnavailable = errors.New("interpretation_unavailable")

// FallbackText is returned when the provider answers with an empty completion.
const FallbackText = "（AI解釈の取得に失敗しました。しばらくしてからもう一度お試しください）"

func cardLabel(c tarot.Card) string {
	if c.Reversed {
		return c.Name + " (reversed)"
	}
	return c.Name + " (upright)"
}

func lengthGuide(depth Depth) string {
	switch depth {
	case DepthShort:
		return "Very short (1-2 sentences total)."
	case DepthStandard:
		return "Short but helpful (5-8 sentences total)."
	default:
		return "Deep and practical (structured, with advice for work/relationships/mindset)."
	}
}

// BuildPrompt renders the reader prompt for a request.
func BuildPrompt(req Request) string {
	var cardBlock strings.Builder
	for i, card := range req.Cards {
		position := fmt.Sprintf("Card %d", i+1)
		if i < len(req.Positions) {
			position = req.Positions[i]
		}
		fmt.Fprintf(&cardBlock, "%s: %s\n", position, cardLabel(card))
	}

	return strings.TrimSpace(fmt.Sprintf(`You are a tarot reader.
Explain the following reading in Japanese.

Spread: %s
Cards:
%s
Style:
- Warm, grounded, and realistic.
- Avoid medical or legal promises.
- %s

Output plain text only.`,
		req.Spread,
		cardBlock.String(),
		lengthGuide(req.Depth),
	))
}
