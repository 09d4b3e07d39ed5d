package in

import (
	"context"

	"sleepsun/internal/modules/archive/dto"
)

type Usecase interface {
	// Export writes a snapshot to path, "-" meaning stdout.
	Export(ctx context.Context, path string) (dto.ExportOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Clear(ctx context.Context) error
}
