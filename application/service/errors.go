package service

import "errors"

// ErrLedgerDisabled indicates transfer recording is turned off.
var ErrLedgerDisabled = errors.New("transfer ledger is disabled")
