package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/stretchr/testify/mock"
)

type ProviderService struct {
	mock.Mock
}

func (p *ProviderService) SendWithRetry(ctx context.Context, businessNumber string,
	request whatsapp.SendRequest) (whatsapp.Response, error) {
	args := p.Called(ctx, businessNumber, request)
	return args.Get(0).(whatsapp.Response), args.Error(1)
}
