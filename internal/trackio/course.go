package trackio

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/okian/wakepoint/internal/domain/model"
)

// ReadCourse decodes a YAML course with marks and an optional start line.
// An empty document yields an empty course.
func ReadCourse(r io.Reader) (*model.Course, error) {
	var c model.Course
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: course: %w", ErrDecode, err)
	}
	return &c, nil
}
