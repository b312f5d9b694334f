package notify

import "errors"

var (
	ErrNoRecipient        = errors.New("notify: no recipient configured")
	ErrTemplateNotFound   = errors.New("notify: template not found")
	ErrLayoutNotFound     = errors.New("notify: layout not found")
	ErrInvalidFrontmatter = errors.New("notify: invalid front matter")
	ErrRenderFailed       = errors.New("notify: render failed")
	ErrSendFailed         = errors.New("notify: send failed")
)
