package world

import "sort"

// AddItems merges items into inventory.
func AddItems(inventory map[string]int, items map[string]int) {
	for item, qty := range items {
		inventory[item] += qty
	}
}

// RemoveItems removes items from inventory only if every quantity is covered;
// otherwise it leaves the inventory untouched and reports false. Keys that
// reach zero are pruned so absence and zero stay equivalent.
func RemoveItems(inventory map[string]int, items map[string]int) bool {
	for item, qty := range items {
		if inventory[item] < qty {
			return false
		}
	}
	for item, qty := range items {
		inventory[item] -= qty
		if inventory[item] <= 0 {
			delete(inventory, item)
		}
	}
	return true
}

// TakeOneItem removes a single unit of the lexicographically first held item
// and returns its name, or "" when the inventory is empty. Sorted order keeps
// attack theft and aid donation deterministic for replay.
func TakeOneItem(inventory map[string]int) string {
	items := make([]string, 0, len(inventory))
	for item, qty := range inventory {
		if qty > 0 {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return ""
	}
	sort.Strings(items)
	item := items[0]
	inventory[item]--
	if inventory[item] <= 0 {
		delete(inventory, item)
	}
	return item
}
