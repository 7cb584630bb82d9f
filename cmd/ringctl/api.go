package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rfratto/pointring"
)

// API exposes a ring over HTTP.
type API struct {
	ring *pointring.Ring[string]
}

// NewAPI returns a new API serving r and registers its routes against
// router. Metrics for r are served from /metrics.
func NewAPI(r *pointring.Ring[string], router *mux.Router) (*API, error) {
	api := &API{ring: r}

	reg := prometheus.NewRegistry()
	if err := reg.Register(r.Metrics()); err != nil {
		return nil, fmt.Errorf("failed to register ring metrics: %w", err)
	}

	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.HandleFunc("/lookup/{key:.+}", api.lookup).Methods(http.MethodGet)
	router.HandleFunc("/nodes", api.nodes).Methods(http.MethodGet)
	router.HandleFunc("/nodes/{node}", api.put).Methods(http.MethodPut)
	router.HandleFunc("/nodes/{node}", api.del).Methods(http.MethodDelete)

	return api, nil
}

func (a *API) lookup(rw http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	owner, ok := a.ring.Get(key)
	if !ok {
		http.Error(rw, "ring has no nodes", http.StatusNotFound)
		return
	}

	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte(owner))
}

type nodesResponse struct {
	Nodes      []nodeStatus `json:"nodes"`
	NodeCount  int          `json:"nodeCount"`
	KeyCount   int          `json:"keyCount"`
	Collisions uint64       `json:"collisions"`
}

type nodeStatus struct {
	Name   string   `json:"name"`
	Points []uint32 `json:"points"`
}

func (a *API) nodes(rw http.ResponseWriter, r *http.Request) {
	names := a.ring.Nodes()
	sort.Strings(names)

	resp := nodesResponse{
		Nodes:      make([]nodeStatus, 0, len(names)),
		NodeCount:  a.ring.NodeCount(),
		KeyCount:   a.ring.KeyCount(),
		Collisions: a.ring.Collisions(),
	}
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}
		resp.Nodes = append(resp.Nodes, nodeStatus{Name: name, Points: a.ring.Points(name)})
	}

	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

// put replaces every registration of a node with a new one of the requested
// weight.
func (a *API) put(rw http.ResponseWriter, r *http.Request) {
	node := mux.Vars(r)["node"]

	weight := 1
	if text := r.URL.Query().Get("weight"); text != "" {
		var err error
		weight, err = strconv.Atoi(text)
		if err != nil || weight < 1 {
			http.Error(rw, "weight must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	a.ring.Remove(node).AddWeighted(node, weight)
	rw.WriteHeader(http.StatusNoContent)
}

func (a *API) del(rw http.ResponseWriter, r *http.Request) {
	node := mux.Vars(r)["node"]
	a.ring.Remove(node)
	rw.WriteHeader(http.StatusNoContent)
}
