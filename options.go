package hanmerge

// MergeOptions holds configuration for a merge job.
type MergeOptions struct {
	// exclusions are heading names or name-prefix patterns removed from
	// every outline before and after merging.
	exclusions []string

	// separator joins concatenated free-text (add_) values.
	separator string

	// captionLanguage is the OCR language for Captions(), e.g. "kor+eng".
	captionLanguage string
}

// defaultOptions returns the default merge options.
func defaultOptions() MergeOptions {
	return MergeOptions{
		exclusions:      nil,
		separator:       " ",
		captionLanguage: "eng",
	}
}

// clone creates a deep copy of MergeOptions.
func (o MergeOptions) clone() MergeOptions {
	newOpts := MergeOptions{
		separator:       o.separator,
		captionLanguage: o.captionLanguage,
	}
	if o.exclusions != nil {
		newOpts.exclusions = make([]string, len(o.exclusions))
		copy(newOpts.exclusions, o.exclusions)
	}
	return newOpts
}
