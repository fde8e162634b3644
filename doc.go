// Package coreflow implements the execution core of a model-orchestration
// runtime: a graph builder, function resolver, cooperative actor system and
// scheduler that turn a job specification into a dataflow graph and run it
// to completion.
//
// A job moves through four stages composed inside a single process:
//
//	JobSpec -> GraphBuilder -> FunctionResolver -> GraphProcessor -> JobResult
//
// The graph package holds the node/graph data model, graphbuild lowers a
// jobdef.Spec into a graph.Graph, resolve binds every node to an executable
// function, actor provides the cooperative message-passing runtime that
// engine uses to schedule and run the graph, and storage/modelapi are the
// narrow external interfaces node functions call through.
//
// # Quick start
//
//	reg := storage.NewRegistry("default")
//	reg.RegisterData(memory.New("default"))
//
//	rt := runtime.New(runtime.Config{}, modelapi.NewLocalLoader(), reg, nil)
//	if err := rt.PreStart(); err != nil {
//		log.Fatal(err)
//	}
//	if err := rt.Start(true); err != nil {
//		log.Fatal(err)
//	}
//	defer rt.Stop(false)
//
//	jobID := rt.SubmitJob(spec)
//	result, err := rt.WaitForJob(ctx, jobID)
package coreflow // import "github.com/coreflow/coreflow"
