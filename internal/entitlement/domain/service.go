package domain

import (
	"context"
	"errors"
)

type StatusRequest struct {
	Email string
}

type StatusResponse struct {
	Plan       string `json:"plan"`
	PlanLabel  string `json:"planLabel"`
	Credits    int64  `json:"credits"`
	IsPremium  bool   `json:"isPremium"`
	HasCredits bool   `json:"hasCredits"`
}

type Service interface {
	Status(context.Context, StatusRequest) (StatusResponse, error)
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("not_found")
)
