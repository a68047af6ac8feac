package store

import (
	"chatapp-servers/internal/storage"
	"chatapp-servers/internal/validator"
)

type fileCheck func(upload *storage.Upload) error

func checkExtension(upload *storage.Upload) error {
	return validator.ImageFileExtension(upload.Filename)
}

func checkIconSize(upload *storage.Upload) error {
	return validator.IconImageSize(upload.Data)
}

var (
	iconChecks   = []fileCheck{checkExtension, checkIconSize}
	bannerChecks = []fileCheck{checkExtension}
)

func runChecks(upload *storage.Upload, checks []fileCheck) error {
	if upload == nil {
		return nil
	}
	for _, check := range checks {
		if err := check(upload); err != nil {
			return err
		}
	}
	return nil
}

// pendingUploads tracks files written for a save that is not committed yet.
type pendingUploads struct {
	store *Store
	names []string
}

func (p *pendingUploads) save(upload *storage.Upload, name string) (string, error) {
	saved, err := p.store.files.Save(name, upload.Data)
	if err != nil {
		return "", err
	}
	p.store.sugar.Debugf("Stored upload [%s] as [%s]", upload.Filename, saved)
	p.names = append(p.names, saved)
	return saved, nil
}

// discard removes the written files after a failed save.
func (p *pendingUploads) discard() {
	if err := p.store.deleteFiles(p.names...); err != nil {
		p.store.sugar.Error(err)
	}
	p.names = nil
}

// staleFile returns the persisted file name when the incoming value replaces it.
func staleFile(persisted, incoming string) string {
	if persisted != incoming {
		return persisted
	}
	return ""
}
