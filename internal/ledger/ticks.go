package ledger

import (
	"encoding/json"
	"fmt"

	"poolscope/internal/model"
	"poolscope/internal/pricing"
	"poolscope/internal/store"
)

// StoreTicks records the directional prices at both boundary ticks of
// every mint. Swaps and burns touch no new ticks.
func StoreTicks(events []model.Event, out store.Writer) error {
	for _, event := range events {
		mint, ok := event.Type.(model.Mint)
		if !ok {
			continue
		}

		for _, idx := range []int32{mint.TickLower, mint.TickUpper} {
			price0, price1 := pricing.TickPrices(idx)
			tick := model.Tick{
				PoolAddress: event.PoolAddress,
				Idx:         idx,
				Price0:      price0.String(),
				Price1:      price1.String(),
			}
			encoded, err := json.Marshal(tick)
			if err != nil {
				return fmt.Errorf("encode tick %d: %w", idx, err)
			}
			out.Set(event.LogOrdinal, model.TickKey(idx, event.PoolAddress), encoded)
		}
	}
	return nil
}
