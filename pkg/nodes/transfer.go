package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
)

var errMissingTransferNumber = errors.New("transfer node has no transfer_number")

const defaultTransferType = "warm"

// TransferExecutor hands the call to another number. A missing number is a
// configuration failure and is rejected before the transfer service is
// touched; a refused transfer is reported through the success flag so error
// connections can route recovery.
type TransferExecutor struct {
	service protocol.TransferService
}

func NewTransferExecutor(service protocol.TransferService) *TransferExecutor {
	return &TransferExecutor{service: service}
}

func (e *TransferExecutor) Type() models.NodeType {
	return models.NodeTypeTransfer
}

func (e *TransferExecutor) Execute(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	number := node.StringData("transfer_number", "")
	if number == "" {
		return nil, engine.NewConfigurationError(ec.ExecutionID, node.ID, errMissingTransferNumber)
	}

	transferType := node.StringData("transfer_type", defaultTransferType)

	ok, err := e.service.Transfer(ctx, number, transferType)
	if err != nil {
		return nil, fmt.Errorf("transferring call to %s: %w", number, err)
	}

	return map[string]any{
		"action":         "call_transferred",
		"success":        ok,
		"transferred_to": number,
		"transfer_type":  transferType,
	}, nil
}
