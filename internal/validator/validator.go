package validator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

const (
	MaxIconWidth  = 70
	MaxIconHeight = 70
)

var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var (
	ErrImageTooLarge = errors.New("icon_too_large")
	ErrBadExtension  = errors.New("bad_extension")
	ErrBadImage      = errors.New("bad_image")
)

var validate = playground.New(playground.WithRequiredStructEnabled())

var (
	lowercase = regexp.MustCompile(`[a-z]`)
	uppercase = regexp.MustCompile(`[A-Z]`)
	number    = regexp.MustCompile(`\d`)
)

func init() {
	err := validate.RegisterValidation("password", func(fl playground.FieldLevel) bool {
		return Password(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
}

// Struct validates v by its `validate` tags and returns field name to failed tag.
// A nil map means v is valid.
func Struct(v any) (map[string]string, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}

	var validateErrs playground.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return nil, err
	}

	fieldErrors := make(map[string]string, len(validateErrs))
	for _, e := range validateErrs {
		fieldErrors[e.Field()] = e.Tag()
	}
	return fieldErrors, nil
}

func IconImageSize(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	if cfg.Width > MaxIconWidth || cfg.Height > MaxIconHeight {
		return fmt.Errorf("%w: maximum is %dx%d, got %dx%d", ErrImageTooLarge, MaxIconWidth, MaxIconHeight, cfg.Width, cfg.Height)
	}
	return nil
}

func ImageFileExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(ImageExtensions, ext) {
		return fmt.Errorf("%w: %q", ErrBadExtension, ext)
	}
	return nil
}

func Password(password string) error {
	length := len(password)
	if length < 6 {
		return fmt.Errorf("short_password")
	} else if length > 32 {
		return fmt.Errorf("long_password")
	}

	if !lowercase.MatchString(password) {
		return fmt.Errorf("no_lowercase")
	}
	if !uppercase.MatchString(password) {
		return fmt.Errorf("no_uppercase")
	}
	if !number.MatchString(password) {
		return fmt.Errorf("no_number")
	}
	return nil
}
