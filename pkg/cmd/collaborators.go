package cmd

import (
	"log/slog"

	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/providers/simulated"
)

// Default demo inputs replayed by the simulated collector when no telephony
// layer is attached.
var defaultSimulatedInputs = []string{"yes", "1234", "no"}

// NewInputCollector returns the input collector. Until a real telephony
// integration is configured this is always the simulated one.
func NewInputCollector(logger *slog.Logger) protocol.InputCollector {
	logger.Debug("Using simulated input collector")

	return simulated.NewInputCollector(defaultSimulatedInputs...)
}

// NewTransferService returns the transfer service, currently always
// simulated.
func NewTransferService(logger *slog.Logger) protocol.TransferService {
	return simulated.NewTransferService(logger)
}
