package graph

import (
	"context"
	"errors"
	"math"

	"github.com/bgadrian/data-structures/priorityqueue"
)

var ErrUnreachable = errors.New("destination unreachable")

const (
	queueLevels      = 100
	queueMaxPriority = 100000
	// how often the search looks at its context
	cancelCheckEvery = 1024
)

type queued struct {
	node int
	cost float64
}

// ShortestPath returns the cheapest node sequence from one node to another
// under the given weights, and its cost.
//
// The hierarchical heap only orders entries by bucket, so this is a label
// correcting search: a node is expanded again whenever a cheaper label for it
// shows up, and stale entries are skipped when popped.
func (g *Graph) ShortestPath(ctx context.Context, from, to int, w Weights) ([]int, float64, error) {
	if from == to {
		return []int{from}, 0, nil
	}

	cost := make([]float64, len(g.Nodes))
	prev := make([]int, len(g.Nodes))
	for node := range cost {
		cost[node] = math.Inf(1)
		prev[node] = -1
	}
	cost[from] = 0

	queue, err := priorityqueue.NewHierarchicalHeap(queueLevels, 0, queueMaxPriority, false)
	if err != nil {
		return nil, 0, err
	}
	size := 0
	enqueue := func(node int, c float64) {
		priority := int(math.Round(c))
		if priority > queueMaxPriority {
			priority = queueMaxPriority
		}
		queue.Enqueue(queued{node: node, cost: c}, priority)
		size++
	}
	enqueue(from, 0)

	pops := 0
	for size > 0 {
		pops++
		if pops%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		temp, err := queue.Dequeue()
		if err != nil {
			return nil, 0, err
		}
		size--

		current := temp.(queued)
		if current.cost > cost[current.node] {
			continue
		}
		// anything at least as expensive as the best known answer can be pruned
		if current.cost >= cost[to] {
			continue
		}

		for _, edge := range g.AdjacencyList[current.node] {
			through := current.cost + w.Cost(edge)
			if through < cost[edge.To] {
				cost[edge.To] = through
				prev[edge.To] = current.node
				enqueue(edge.To, through)
			}
		}
	}

	if math.IsInf(cost[to], 1) {
		return nil, 0, ErrUnreachable
	}

	nodes := []int{}
	for node := to; node != -1; node = prev[node] {
		nodes = append(nodes, node)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes, cost[to], nil
}
