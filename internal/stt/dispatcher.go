package stt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"zhaiyao/internal/media"
)

// Transcript is the assembled result for one audio file.
type Transcript struct {
	Text   string   // per-segment pieces joined by a blank line
	Raw    []string // raw provider responses, ordinal order
	Vendor string   // provider name
}

// Dispatch transcribes 1..N ordered segments and concatenates the pieces in
// ordinal order. A single segment goes out as one direct request. Multiple
// segments are pulled by a bounded pool of workers claiming ordinals off a
// shared atomic counter; results land in a pre-sized slice indexed by
// ordinal so completion timing never affects output order. Any segment
// failure aborts the whole transcription.
func Dispatch(ctx context.Context, provider Provider, segments []media.Segment, concurrency int) (*Transcript, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to transcribe")
	}

	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(segments) {
		concurrency = len(segments)
	}

	results := make([]*Result, len(segments))

	if len(segments) == 1 {
		res, err := provider.Transcribe(ctx, segments[0])
		if err != nil {
			return nil, err
		}
		results[0] = res
	} else {
		log.Printf("[Dispatch] transcribing %d segments with %d workers", len(segments), concurrency)

		var cursor atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < concurrency; w++ {
			g.Go(func() error {
				for {
					i := int(cursor.Add(1)) - 1
					if i >= len(segments) {
						return nil
					}
					if err := gctx.Err(); err != nil {
						return err
					}
					res, err := provider.Transcribe(gctx, segments[i])
					if err != nil {
						return fmt.Errorf("segment %d: %w", i, err)
					}
					results[i] = res
				}
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	pieces := make([]string, len(results))
	raw := make([]string, len(results))
	for i, res := range results {
		pieces[i] = res.Text
		raw[i] = res.RawResponse
	}

	return &Transcript{
		Text:   strings.Join(pieces, "\n\n"),
		Raw:    raw,
		Vendor: provider.Name(),
	}, nil
}
