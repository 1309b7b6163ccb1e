// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/mining"
)

// ListKey identifies a list node. The zero value is reserved as the nil pointer.
type ListKey interface {
	comparable
	Key
}

// LinkedList is a doubly linked list kept in contract storage.
type LinkedList[K ListKey] struct {
	head  *Raw[K]
	tail  *Raw[K]
	count *Uint256
	next  *Mapping[K, K]
	prev  *Mapping[K, K]
}

// NewLinkedList creates a list under the given slots. The next/prev mappings reuse the head/tail slots as base.
func NewLinkedList[K ListKey](ctx *Context, headPos, tailPos, countPos mining.Bytes32) *LinkedList[K] {
	return &LinkedList[K]{
		head:  NewRaw[K](ctx, headPos),
		tail:  NewRaw[K](ctx, tailPos),
		count: NewUint256(ctx, countPos),
		next:  NewMapping[K, K](ctx, headPos),
		prev:  NewMapping[K, K](ctx, tailPos),
	}
}

func isZero[K ListKey](k K) bool {
	var zero K
	return k == zero
}

// Add appends key to the end of the list.
func (l *LinkedList[K]) Add(key K) error {
	if isZero(key) {
		return errors.New("zero key")
	}
	oldTail, err := l.tail.Get()
	if err != nil {
		return err
	}

	if isZero(oldTail) {
		if err := l.head.Set(key); err != nil {
			return err
		}
	} else {
		if err := l.next.Set(oldTail, key); err != nil {
			return err
		}
		if err := l.prev.Set(key, oldTail); err != nil {
			return err
		}
	}
	if err := l.tail.Set(key); err != nil {
		return err
	}
	return l.count.Add(big.NewInt(1))
}

// InsertSorted inserts key before the first node for which less(key, node) holds.
func (l *LinkedList[K]) InsertSorted(key K, less func(a, b K) bool) error {
	if isZero(key) {
		return errors.New("zero key")
	}
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !isZero(ptr) {
		if less(key, ptr) {
			return l.insertBefore(key, ptr)
		}
		if ptr, err = l.next.Get(ptr); err != nil {
			return err
		}
	}
	return l.Add(key)
}

func (l *LinkedList[K]) insertBefore(key, at K) error {
	prev, err := l.prev.Get(at)
	if err != nil {
		return err
	}
	if isZero(prev) {
		if err := l.head.Set(key); err != nil {
			return err
		}
	} else {
		if err := l.next.Set(prev, key); err != nil {
			return err
		}
		if err := l.prev.Set(key, prev); err != nil {
			return err
		}
	}
	if err := l.next.Set(key, at); err != nil {
		return err
	}
	if err := l.prev.Set(at, key); err != nil {
		return err
	}
	return l.count.Add(big.NewInt(1))
}

// Contains reports whether key is linked in the list.
func (l *LinkedList[K]) Contains(key K) (bool, error) {
	if isZero(key) {
		return false, nil
	}
	prev, err := l.prev.Get(key)
	if err != nil {
		return false, err
	}
	if !isZero(prev) {
		return true, nil
	}
	head, err := l.head.Get()
	if err != nil {
		return false, err
	}
	return head == key, nil
}

// Remove unlinks key from anywhere in the list. Removing an absent key is a no-op.
func (l *LinkedList[K]) Remove(key K) error {
	ok, err := l.Contains(key)
	if err != nil || !ok {
		return err
	}
	prev, err := l.prev.Get(key)
	if err != nil {
		return err
	}
	next, err := l.next.Get(key)
	if err != nil {
		return err
	}

	if isZero(prev) {
		err = l.head.Set(next)
	} else {
		err = l.next.Set(prev, next)
	}
	if err != nil {
		return err
	}

	if isZero(next) {
		err = l.tail.Set(prev)
	} else {
		err = l.prev.Set(next, prev)
	}
	if err != nil {
		return err
	}

	l.next.Delete(key)
	l.prev.Delete(key)
	return l.count.Sub(big.NewInt(1))
}

// Head returns the first key, zero when empty.
func (l *LinkedList[K]) Head() (K, error) {
	return l.head.Get()
}

// Next returns the successor of key, zero at the end.
func (l *LinkedList[K]) Next(key K) (K, error) {
	return l.next.Get(key)
}

// Len returns the number of linked keys.
func (l *LinkedList[K]) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter traverses the list from head to tail until callback returns an error.
// The callback may remove the visited key.
func (l *LinkedList[K]) Iter(callback func(K) error) error {
	ptr, err := l.head.Get()
	if err != nil {
		return err
	}
	for !isZero(ptr) {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}
