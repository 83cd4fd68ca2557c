package mocks

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/stretchr/testify/mock"
)

type IngestService struct {
	mock.Mock
}

func (i *IngestService) Ingest(ctx context.Context, cmd service.IngestMessageCommand) (*model.Message, error) {
	args := i.Called(ctx, cmd)
	return args.Get(0).(*model.Message), args.Error(1)
}

type StatusService struct {
	mock.Mock
}

func (s *StatusService) ApplyStatus(ctx context.Context, cmd service.ApplyStatusCommand) (
	service.ApplyStatusResult, error) {
	args := s.Called(ctx, cmd)
	return args.Get(0).(service.ApplyStatusResult), args.Error(1)
}

func (s *StatusService) AttachProviderMessageID(ctx context.Context,
	cmd service.AttachProviderMessageIDCommand) (*model.Message, error) {
	args := s.Called(ctx, cmd)
	return args.Get(0).(*model.Message), args.Error(1)
}
