package registry

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// ListenEvents consumes DocumentRegistered chaincode events until ctx is
// cancelled and logs each one. Event consumption is observational only; the
// request path never depends on it.
func (g *GatewayRegistry) ListenEvents(ctx context.Context) error {
	events, err := g.network.ChaincodeEvents(ctx, g.cfg.Chaincode)
	if err != nil {
		return err
	}
	g.log.Info("listening for chaincode events")

	for event := range events {
		fields := logrus.Fields{
			"event":       event.EventName,
			"txId":        event.TransactionID,
			"blockNumber": event.BlockNumber,
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(event.Payload, &payload); err == nil {
			if cert, ok := payload["certificateNumber"]; ok {
				fields["certificateNumber"] = cert
			}
		}
		g.log.WithFields(fields).Info("chaincode event received")
	}
	return ctx.Err()
}
