package engine

import (
	"fmt"
	"sync"
)

// Мутации одной и той же сущности сериализуются по ключу "scope:id".
// Мьютексы не освобождаются: их число ограничено числом сущностей.
var mutationLocks sync.Map

func lockEntity(scope string, id interface{}) func() {
	key := fmt.Sprintf("%s:%v", scope, id)
	v, _ := mutationLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
