package template

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// Watch reloads the template whenever its file changes and hands the new,
// validated template to the callback. A template that fails to load or
// validate is logged and skipped; the previous template stays active.
// The returned stop function releases the watcher.
func Watch(path string, log domain.Logger, callback func(*Template)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files on save, which drops the
	// watch when set on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				tpl, err := Load(path)
				if err != nil {
					log.Warn("Template reload failed, keeping previous", "path", path, "error", err)
					continue
				}
				log.Info("Template reloaded", "path", path, "name", tpl.TemplateName, "version", tpl.Version)
				callback(tpl)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Template watcher error", "error", err)
			}
		}
	}()

	return watcher.Close, nil
}
