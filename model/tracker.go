/*
Copyright 2025 Velora Payments Authors.

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

package model

import "sync"

// TransferTracker is a best-effort in-memory index of in-flight transfers.
// It only accelerates status reads; the database row stays the source of
// truth and survives process restarts.
type TransferTracker struct {
	Transfers map[string]*Transfer
	Mutex     sync.Mutex
}
