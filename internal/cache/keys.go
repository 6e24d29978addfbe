package cache

import "github.com/slotsmith/slotsmith/internal/model"

const keyPrefix = "slotsmith"

func ConfigKey(scope model.Scope) string {
	return keyPrefix + ":event-config:" + scope.String()
}

func BlackoutsKey(scope model.Scope) string {
	return keyPrefix + ":blackouts:" + scope.String()
}

func EventTypeKey(id int64) string {
	return keyPrefix + ":event-type:" + model.EventScope(id).String()
}
