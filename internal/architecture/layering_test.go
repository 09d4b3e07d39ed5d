package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	walkModuleImports(t, func(path, module, layer, importPath string) {
		if !strings.Contains(importPath, "sleepsun/internal/modules/") {
			return
		}
		if violatesLayerRule(module, layer, importPath) {
			t.Errorf("forbidden import in %s (%s): %s", path, layer, importPath)
		}
	})
}

// Domain packages hold pure values and math; I/O lives in adapters.
var domainForbidden = []string{"database/sql", "net/http", "os", "log/slog", "github.com/"}

func TestDomainPackagesStayPure(t *testing.T) {
	t.Parallel()
	walkModuleImports(t, func(path, module, layer, importPath string) {
		if layer != "domain" {
			return
		}
		for _, forbidden := range domainForbidden {
			if importPath == forbidden || (strings.HasSuffix(forbidden, "/") && strings.HasPrefix(importPath, forbidden)) {
				t.Errorf("domain package %s imports %s", path, importPath)
			}
		}
	})
}

// Statistics are derived views: the stats module reads through its own
// out-ports and never reaches the record store.
func TestStatsNeverTouchesRecordStore(t *testing.T) {
	t.Parallel()
	walkModuleImports(t, func(path, module, _ string, importPath string) {
		if module != "stats" {
			return
		}
		if strings.Contains(importPath, "/internal/modules/record/port/out") || strings.Contains(importPath, "/internal/modules/record/adapter/") {
			t.Errorf("stats package %s imports %s", path, importPath)
		}
	})
}

func walkModuleImports(t *testing.T, visit func(path, module, layer, importPath string)) {
	t.Helper()
	fset := token.NewFileSet()
	err := filepath.WalkDir(filepath.Join("..", "modules"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		slash := filepath.ToSlash(path)
		module, layer := moduleName(slash), detectLayer(slash)
		if module == "" || layer == "" {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		for _, imp := range node.Imports {
			visit(slash, module, layer, strings.Trim(imp.Path.Value, `"`))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk modules: %v", err)
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.Contains(importPath, "/internal/modules/"+module+"/")
	if !sameModule {
		if strings.Contains(importPath, "/service/") || strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") {
			return true
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(importPath) && !isDTO(importPath)
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/")
	case "domain":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") || strings.Contains(importPath, "/service/")
	default:
		return false
	}
}
