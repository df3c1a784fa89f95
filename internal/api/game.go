package api

import (
	"context"

	"github.com/mcoot/clickpot/internal/model"
)

type gameStateResponse struct {
	GameState model.GameState `json:"gameState"`
}

// ClickResponse is the body of a successful click
type ClickResponse struct {
	Message string `json:"message,omitempty"`
}

// TransactionResponse is returned by the payout calls
type TransactionResponse struct {
	TransactionID string `json:"transactionId"`
}

type winnersResponse struct {
	Winners []model.WinnerRecord `json:"winners"`
}

// GameState fetches the authoritative game snapshot
func (c *Client) GameState(ctx context.Context) (*model.GameState, error) {
	var resp gameStateResponse
	if err := c.Get(ctx, "/api/game/state", &resp); err != nil {
		return nil, err
	}
	return &resp.GameState, nil
}

// Click submits one click
func (c *Client) Click(ctx context.Context) (*ClickResponse, error) {
	var resp ClickResponse
	if err := c.Post(ctx, "/api/game/click", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Collect pays out the signed-in user's winnings
func (c *Client) Collect(ctx context.Context) (string, error) {
	var resp TransactionResponse
	if err := c.Post(ctx, "/api/winners/collect", nil, &resp); err != nil {
		return "", err
	}
	return resp.TransactionID, nil
}

// AdminCollect pays out the administrator balance
func (c *Client) AdminCollect(ctx context.Context) (string, error) {
	var resp TransactionResponse
	if err := c.Post(ctx, "/api/admin/collect", nil, &resp); err != nil {
		return "", err
	}
	return resp.TransactionID, nil
}

// SetPaymentMethod sets the payout address for winnings
func (c *Client) SetPaymentMethod(ctx context.Context, paypalEmail string) error {
	return c.Post(ctx, "/api/winners/setPaymentMethod", map[string]string{"paypalEmail": paypalEmail}, nil)
}

// Winners lists past winners
func (c *Client) Winners(ctx context.Context) ([]model.WinnerRecord, error) {
	var resp winnersResponse
	if err := c.Get(ctx, "/api/winners", &resp); err != nil {
		return nil, err
	}
	return resp.Winners, nil
}
