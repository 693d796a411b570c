package evm

import (
	"github.com/ethereum/go-ethereum/core/types"

	"chaincodec/internal/model"
)

// RawEventFromLog converts a go-ethereum log into a RawEvent.
func RawEventFromLog(chain model.ChainID, log types.Log, blockTimestamp int64) model.RawEvent {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.RawEvent{
		Chain:          chain,
		TxHash:         log.TxHash.Hex(),
		BlockNumber:    log.BlockNumber,
		BlockTimestamp: blockTimestamp,
		LogIndex:       uint32(log.Index),
		Topics:         topics,
		Data:           append([]byte{}, log.Data...),
		Address:        log.Address.Hex(),
	}
}
