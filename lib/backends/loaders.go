// Copyright 2026 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backends

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Loader loads a model from a local directory.
type Loader func(ctx context.Context, modelPath string) (Model, error)

var (
	loadersMu sync.RWMutex
	loaders   = make(map[string]Loader)
)

// RegisterLoader makes a model loader available by name. Inference engines
// register themselves from their init functions, typically behind build
// tags. Registering the same name twice panics.
func RegisterLoader(name string, loader Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	if loader == nil {
		panic("backends: RegisterLoader with nil loader")
	}
	if _, dup := loaders[name]; dup {
		panic("backends: RegisterLoader called twice for " + name)
	}
	loaders[name] = loader
}

// LoaderByName returns a registered loader. An empty name selects the sole
// registered loader when exactly one exists.
func LoaderByName(name string) (Loader, error) {
	loadersMu.RLock()
	defer loadersMu.RUnlock()

	if name == "" {
		if len(loaders) == 1 {
			for _, loader := range loaders {
				return loader, nil
			}
		}
		return nil, fmt.Errorf("no backend selected (registered: %v)", loaderNamesLocked())
	}

	loader, ok := loaders[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (registered: %v)", name, loaderNamesLocked())
	}
	return loader, nil
}

// LoaderNames returns the registered loader names in sorted order.
func LoaderNames() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()
	return loaderNamesLocked()
}

func loaderNamesLocked() []string {
	names := make([]string, 0, len(loaders))
	for name := range loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
