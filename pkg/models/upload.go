package models

// Upload is a file picked by the user, forwarded to the webhook as-is.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

func (u *Upload) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Content)
}
