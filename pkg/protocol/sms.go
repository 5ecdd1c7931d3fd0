package protocol

import "context"

// SMSSender delivers text messages on behalf of an account.
type SMSSender interface {
	Send(ctx context.Context, accountID, to, body string) (messageID string, err error)
}
