package model

// Log is a single receipt or call log, already split into topics and
// payload bytes by the upstream decoder.
type Log struct {
	Address string   `json:"address"`
	Ordinal uint64   `json:"ordinal"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Call is one decoded call trace with the logs it emitted.
type Call struct {
	Address string `json:"address"`
	Logs    []Log  `json:"logs"`
}

// Transaction carries the call traces and receipt logs of one transaction.
type Transaction struct {
	Hash  string `json:"hash"`
	Calls []Call `json:"calls"`
	Logs  []Log  `json:"logs"`
}

// Block is the decoded block delivered by the host for one pass.
type Block struct {
	Number       uint64        `json:"number"`
	Timestamp    uint64        `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}
