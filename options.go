/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gowarc

import (
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type writerOptions struct {
	warcVersion     *WarcVersion
	compress        bool
	softwareName    string
	softwareVersion string
	warcMeta        map[string]string
	idFunc          func() (string, error)
}

// defaultIdGenerator is the default function used to generate record ids.
var defaultIdGenerator = func() (string, error) {
	return uuid.New().URN(), nil
}

func defaultWriterOptions() writerOptions {
	uuid.EnableRandPool()
	return writerOptions{
		warcVersion:     V1_1,
		compress:        false,
		softwareName:    "gowarc",
		softwareVersion: "",
		warcMeta:        map[string]string{},
		idFunc:          defaultIdGenerator,
	}
}

// WriterOption configures a Writer's archive-wide metadata and behavior.
type WriterOption interface {
	apply(*writerOptions)
}

// funcWriterOption wraps a function that modifies writerOptions into an
// implementation of the WriterOption interface.
type funcWriterOption struct {
	f func(*writerOptions)
}

func (fo *funcWriterOption) apply(o *writerOptions) {
	fo.f(o)
}

func newFuncWriterOption(f func(*writerOptions)) *funcWriterOption {
	return &funcWriterOption{f: f}
}

// WithWarcVersion sets the version line written before every record.
//
// defaults to WARC/1.1
func WithWarcVersion(v *WarcVersion) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.warcVersion = v
	})
}

// WithCompression enables per-record gzip framing: every record, including
// the warcinfo bootstrap, becomes the sole payload of its own gzip member.
func WithCompression(compress bool) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.compress = compress
	})
}

// WithSoftware sets the software name/version reported in the warcinfo
// record's payload.
func WithSoftware(name, version string) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.softwareName = name
		o.softwareVersion = version
	})
}

// WithWarcMeta adds archive-wide fields to the warcinfo record's payload,
// alongside format and software.
func WithWarcMeta(meta map[string]string) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.warcMeta = meta
	})
}

// WithRecordIDFunc overrides how WARC-Record-ID values are generated.
// Intended for tests that need deterministic ids.
//
// defaults to generating a UUID v4 URN
func WithRecordIDFunc(f func() (string, error)) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.idFunc = f
	})
}

// WriterConfig is the file/env-loadable counterpart of the WriterOption
// functions above, for applications that configure a Writer from a config
// file rather than composing options in code.
type WriterConfig struct {
	SoftwareName    string            `mapstructure:"software_name"`
	SoftwareVersion string            `mapstructure:"software_version"`
	WarcMeta        map[string]string `mapstructure:"warc_meta"`
	Compress        bool              `mapstructure:"compress"`
}

// Options converts a WriterConfig into the WriterOption values NewWriter
// expects.
func (c *WriterConfig) Options() []WriterOption {
	return []WriterOption{
		WithSoftware(c.SoftwareName, c.SoftwareVersion),
		WithWarcMeta(c.WarcMeta),
		WithCompression(c.Compress),
	}
}

// LoadWriterConfig unmarshals a WriterConfig out of v, the way an embedding
// application's own config loading would after calling v.SetConfigFile/
// v.ReadInConfig. This is a library function, not a CLI flag parser: the
// command-line surface that originally drove configuration is out of scope.
func LoadWriterConfig(v *viper.Viper) (*WriterConfig, error) {
	cfg := &WriterConfig{WarcMeta: map[string]string{}}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchWriterConfig arranges for onChange to be called with a freshly
// reloaded WriterConfig whenever v's backing config file changes on disk.
func WatchWriterConfig(v *viper.Viper, onChange func(*WriterConfig)) {
	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := LoadWriterConfig(v)
		if err != nil {
			pkgLog.WithError(err).Warn("failed to reload writer config")
			return
		}
		onChange(cfg)
	})
}
