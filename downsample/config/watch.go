/*
DESCRIPTION
  watch.go lets a running Config be retuned live from a plain-text vars
  file (one "Key Value" pair per line) without restarting the process,
  reloading whenever the file is written.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// readVarsFile parses path as a sequence of "Key Value" lines, one
// config variable per line; blank lines and lines starting with '#'
// are skipped.
func readVarsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("config: malformed vars line %q", line)
		}
		vars[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// Watcher applies path's contents to a Config whenever the file
// changes, until Close is called.
type Watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatchFile starts watching path, applying its initial contents to cfg
// immediately and again on every subsequent write, so fields such as
// BayerLevel or LocalContrastGain can be retuned without restarting the
// process. cfg.Logger receives a warning for any read or parse failure;
// the watch is not torn down by one.
func WatchFile(path string, cfg *Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: could not create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: could not watch %q: %w", path, err)
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{})}
	w.reload(path, cfg)
	go w.run(path, cfg)
	return w, nil
}

func (w *Watcher) reload(path string, cfg *Config) {
	vars, err := readVarsFile(path)
	if err != nil {
		cfg.Logger.Warning("config: could not reload vars file", "path", path, "error", err.Error())
		return
	}
	cfg.Update(vars)
	if err := cfg.Validate(); err != nil {
		cfg.Logger.Warning("config: reloaded config failed validation", "error", err.Error())
	}
}

func (w *Watcher) run(path string, cfg *Config) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(path, cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			cfg.Logger.Warning("config: watch error", "error", err.Error())
		}
	}
}

// Close stops the watch and releases the underlying inotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
