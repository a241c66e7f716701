package api

import (
	"encoding/json"
	"log"

	"github.com/leanlp/mirrorscan/internal/mirror"
)

// batchEvent is one progress message broadcast over /ws when the
// classifier emits a batch.
type batchEvent struct {
	Type     string `json:"type"`
	Symbol   uint32 `json:"symbol"`
	Category string `json:"category"`
	Matches  int    `json:"matches"`
}

// BroadcastEmission returns a callback wired as the classifier's
// EmitFunc, turning each emitted batch into a /ws progress event.
// Patterned on the teacher's BroadcastCoinJoinAlert callback wiring.
func BroadcastEmission(hub *Hub) func(symbol uint32, category mirror.Category, batch *mirror.Batch) {
	return func(symbol uint32, category mirror.Category, batch *mirror.Batch) {
		payload, err := json.Marshal(batchEvent{
			Type:     "batch_emitted",
			Symbol:   symbol,
			Category: category.String(),
			Matches:  len(batch.Similar),
		})
		if err != nil {
			log.Printf("failed to marshal progress event: %v", err)
			return
		}
		hub.Broadcast(payload)
	}
}

// summaryEvent is the final message broadcast once a run completes.
type summaryEvent struct {
	Type            string `json:"type"`
	CopyMatches     int    `json:"copyMatches"`
	ReversalMatches int    `json:"reversalMatches"`
	PartialMatches  int    `json:"partialCopyMatches"`
}

// BroadcastSummary sends the final run-complete event to every connected client.
func BroadcastSummary(hub *Hub, copyMatches, reversalMatches, partialMatches int) {
	payload, err := json.Marshal(summaryEvent{
		Type:            "run_complete",
		CopyMatches:     copyMatches,
		ReversalMatches: reversalMatches,
		PartialMatches:  partialMatches,
	})
	if err != nil {
		log.Printf("failed to marshal summary event: %v", err)
		return
	}
	hub.Broadcast(payload)
}
