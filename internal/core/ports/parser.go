package ports

import "go.trai.ch/sift/internal/core/domain"

// DocumentParser turns the text of a configuration document into options.
//
//go:generate mockgen -source=parser.go -destination=mocks/mock_parser.go -package=mocks
type DocumentParser interface {
	// Parse decodes data read from path. The format is chosen by the path's extension.
	Parse(path string, data []byte) (domain.Options, error)
}
