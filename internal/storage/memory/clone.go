package memory

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// setFloat overwrites *dst only when v is set.
func setFloat(dst **float64, v *float64) {
	if v != nil {
		*dst = cloneFloat(v)
	}
}

func setInt64(dst **int64, v *int64) {
	if v != nil {
		*dst = cloneInt64(v)
	}
}
