package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/stretchr/testify/mock"
)

var _ whatsapp.Provider = (*WhatsAppProvider)(nil)

type WhatsAppProvider struct {
	mock.Mock
}

func (_m *WhatsAppProvider) Send(ctx context.Context, creds whatsapp.Credentials,
	request whatsapp.SendRequest) (whatsapp.Response, error) {
	ret := _m.Called(ctx, creds, request)
	return ret.Get(0).(whatsapp.Response), ret.Error(1)
}
