package model

// DecodeFailure records a failed batch item for the errors log.
type DecodeFailure struct {
	Index       int    `json:"index"`
	Chain       string `json:"chain"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint32 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	ErrorType   string `json:"error_type"`
	Error       string `json:"error"`
}

// NewDecodeFailure builds a failure record for raw at index.
func NewDecodeFailure(index int, raw RawEvent, err error) DecodeFailure {
	return DecodeFailure{
		Index:       index,
		Chain:       raw.Chain.Slug,
		BlockNumber: raw.BlockNumber,
		TxHash:      raw.TxHash,
		LogIndex:    raw.LogIndex,
		Address:     raw.Address,
		Topic0:      raw.Topic(0),
		ErrorType:   ErrorType(err),
		Error:       err.Error(),
	}
}
