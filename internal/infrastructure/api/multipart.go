package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/theaddress/rentals/internal/core/domain"
)

// encodeMultipart serializes an ApartmentForm into a multipart body.
// Numeric fields travel as their decimal-string representation; the
// image part is appended only when an attachment is present.
func encodeMultipart(form domain.ApartmentForm) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"name":          form.Name,
		"address":       form.Address,
		"description":   form.Description,
		"numberOfRooms": strconv.Itoa(form.NumberOfRooms),
		"price":         strconv.FormatFloat(form.Price, 'f', -1, 64),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if form.Image != nil {
		part, err := w.CreateFormFile("image", form.Image.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, form.Image.Reader); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
