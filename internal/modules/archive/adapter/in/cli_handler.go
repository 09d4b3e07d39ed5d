package in

import (
	"context"

	archivedto "sleepsun/internal/modules/archive/dto"
	archivein "sleepsun/internal/modules/archive/port/in"
)

type CLIHandler struct {
	usecase archivein.Usecase
}

func NewCLIHandler(usecase archivein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Export(ctx context.Context, path string) (archivedto.ExportOutput, error) {
	return h.usecase.Export(ctx, path)
}

func (h CLIHandler) Import(ctx context.Context, path string, clearFirst bool) (archivedto.ImportOutput, error) {
	return h.usecase.Import(ctx, archivedto.ImportInput{Path: path, ClearFirst: clearFirst})
}

func (h CLIHandler) Clear(ctx context.Context) error {
	return h.usecase.Clear(ctx)
}
