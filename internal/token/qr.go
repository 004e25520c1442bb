package token

import (
	"context"

	"github.com/skip2/go-qrcode"
)

// IssueQR issues a token for the invitation and renders it as a QR PNG
// suitable for embedding in the delivered invitation.
func (c *Codec) IssueQR(ctx context.Context, ticketID string) ([]byte, error) {
	signed, err := c.Issue(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(signed, qrcode.Medium, 256)
}
