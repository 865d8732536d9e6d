/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rancher-sandbox/tracecct/pkg/cct"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
	"github.com/rancher-sandbox/tracecct/pkg/tasks"
)

// BuildForest builds the tree of every task of a prepared trace, with at most
// workers trees built at once.  Each tree is built by a single goroutine.
// Cancelling ctx stops scheduling further tasks.
func BuildForest(ctx context.Context, trace *tasks.Trace, workers int, logger logging.Logger) (*cct.Forest, error) {
	logger = logging.OrDefault(logger)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(max(workers, 1))

	schedule := func(events []model.Event, slot **cct.Tree) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			*slot = cct.Build(events, cct.WithLogger(logger))
			return nil
		})
		return nil
	}

	syncKeys := model.SortedSyncTaskIDs(trace.Sync)
	asyncKeys := model.SortedAsyncTaskIDs(trace.Async)
	objectKeys := model.SortedObjectTaskIDs(trace.Object)
	syncTrees := make([]*cct.Tree, len(syncKeys))
	asyncTrees := make([]*cct.Tree, len(asyncKeys))
	objectTrees := make([]*cct.Tree, len(objectKeys))

	err := func() error {
		for i, key := range syncKeys {
			if err := schedule(trace.Sync[key], &syncTrees[i]); err != nil {
				return err
			}
		}
		for i, key := range asyncKeys {
			if err := schedule(trace.Async[key], &asyncTrees[i]); err != nil {
				return err
			}
		}
		for i, key := range objectKeys {
			if err := schedule(trace.Object[key], &objectTrees[i]); err != nil {
				return err
			}
		}
		return nil
	}()
	if waitErr := group.Wait(); waitErr != nil {
		return nil, waitErr
	}
	if err != nil {
		return nil, err
	}

	forest := cct.NewForest()
	for i, key := range syncKeys {
		forest.Sync[key] = syncTrees[i]
	}
	for i, key := range asyncKeys {
		forest.Async[key] = asyncTrees[i]
	}
	for i, key := range objectKeys {
		forest.Object[key] = objectTrees[i]
	}
	logger.Debugf("built %d trees with %d workers", forest.Len(), workers)
	return forest, nil
}
