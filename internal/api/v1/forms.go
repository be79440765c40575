package v1

import (
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/errors"
)

// maxFileBytes caps a single uploaded file.
const maxFileBytes = 16 << 20

// submissionFromRequest reads a url-encoded or multipart form. Repeated
// communities values are joined with commas; other fields keep the first
// value.
func submissionFromRequest(ctx echo.Context) (entity.Submission, error) {
	sub := entity.Submission{Values: make(map[string]string)}

	params, err := ctx.FormParams()
	if err != nil {
		return sub, formError(err, "params")
	}
	for name, values := range params {
		switch {
		case len(values) == 0:
		case name == entity.FieldNameCommunities:
			sub.Values[name] = strings.Join(values, ",")
		default:
			sub.Values[name] = values[0]
		}
	}

	if !isMultipart(ctx) {
		return sub, nil
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		return sub, formError(err, "multipart")
	}
	if sub.Files, err = readFiles(form); err != nil {
		return sub, err
	}
	return sub, nil
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// readFiles loads every uploaded file, ordered by field name.
func readFiles(form *multipart.Form) ([]entity.File, error) {
	var files []entity.File
	for _, field := range slices.Sorted(maps.Keys(form.File)) {
		for _, h := range form.File[field] {
			if h.Size > maxFileBytes {
				return nil, errors.Newf("file %q is larger than %d bytes", h.Filename, maxFileBytes).
					Category(errors.CategoryValidation).
					Component("api").
					Context("field", field).
					Build()
			}
			data, err := readFile(h)
			if err != nil {
				return nil, formError(err, "file")
			}
			files = append(files, entity.File{
				Field:       field,
				Name:        h.Filename,
				ContentType: h.Header.Get(echo.HeaderContentType),
				Data:        data,
			})
		}
	}
	return files, nil
}

func readFile(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", h.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxFileBytes))
}

func formError(err error, stage string) error {
	return errors.New(err).
		Category(errors.CategoryValidation).
		Component("api").
		Context("stage", stage).
		Build()
}
