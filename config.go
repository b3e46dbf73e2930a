package hanmerge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOptions is the YAML shape of a merge options file:
//
//	exclusions:
//	  - "부록"
//	  - "2."
//	separator: " "
//	caption_language: kor+eng
type fileOptions struct {
	Exclusions      []string `yaml:"exclusions"`
	Separator       string   `yaml:"separator"`
	CaptionLanguage string   `yaml:"caption_language"`
}

func loadOptionsFile(path string) (fileOptions, error) {
	var opts fileOptions
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	return opts, nil
}

// apply folds file options into merge options. Absent fields keep their
// current values.
func (f fileOptions) apply(o MergeOptions) MergeOptions {
	out := o.clone()
	out.exclusions = append(out.exclusions, f.Exclusions...)
	if f.Separator != "" {
		out.separator = f.Separator
	}
	if f.CaptionLanguage != "" {
		out.captionLanguage = f.CaptionLanguage
	}
	return out
}
