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

// Package retry wraps provider calls in a bounded exponential backoff.
// Whether an error is worth retrying is decided by a pluggable classifier,
// so new provider error vocabularies can be added without touching the
// retry loop itself.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/config"
)

// Kind buckets a classified error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransient  Kind = "transient"
	KindFinal      Kind = "final"
)

// Classification is the verdict a Classifier passes on an error.
type Classification struct {
	Retryable bool
	Kind      Kind
}

// Classifier maps a provider error to a retry decision. Unknown errors
// should classify as transient so that flaky providers get the benefit of
// the doubt.
type Classifier func(error) Classification

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy matches the reference behavior: up to 3 attempts, 1s base
// delay, 10s cap.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// PolicyFromConfig builds a Policy from the configured retry knobs, falling
// back to the defaults for unset values.
func PolicyFromConfig(conf config.RetryConfig) Policy {
	policy := DefaultPolicy()
	if conf.MaxAttempts > 0 {
		policy.MaxAttempts = conf.MaxAttempts
	}
	if conf.BaseDelaySec > 0 {
		policy.BaseDelay = time.Duration(conf.BaseDelaySec) * time.Second
	}
	if conf.MaxDelaySec > 0 {
		policy.MaxDelay = time.Duration(conf.MaxDelaySec) * time.Second
	}
	return policy
}

// Do runs op, retrying per the policy for errors the classifier marks
// retryable. Non-retryable errors propagate on the first attempt. The last
// error is returned once attempts are exhausted.
func Do(ctx context.Context, policy Policy, classify Classifier, op func() error) error {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.MaxInterval = policy.MaxDelay
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if c := classify(err); !c.Retryable {
			return backoff.Permanent(err)
		}
		return err
	}

	retries := uint64(policy.MaxAttempts - 1)
	err := backoff.RetryNotify(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx),
		func(err error, next time.Duration) {
			logrus.WithError(err).Warnf("transient provider error, retrying in %s", next)
		},
	)
	if permanent, ok := err.(*backoff.PermanentError); ok {
		return permanent.Err
	}
	return err
}
