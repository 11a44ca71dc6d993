package glthread

import (
	"fmt"

	"github.com/gogpu/glthread/marshal"
	"github.com/gogpu/glthread/trace"
)

func unmarshalBatchJob(data any, _ int) {
	b := data.(*batch)
	b.engine.unmarshalBatch(b, false)
}

// unmarshalBatch executes every record of b in order. It runs on the
// worker thread, or on the producer when direct is set.
func (e *Engine) unmarshalBatch(b *batch, direct bool) {
	var ids []uint16
	if e.opts.tracer != nil {
		ids = make([]uint16, 0, b.count)
	}

	used := b.used
	pos := 0

	e.dispatcher.Lock()
	for pos < used {
		cmd := b.buffer[pos:used]
		if ids != nil {
			ids = append(ids, uint16(marshal.ReadHeader(cmd).ID))
		}
		n := e.dispatcher.Execute(cmd)
		if n <= 0 {
			e.dispatcher.Unlock()
			panic(fmt.Sprintf("glthread: record at slot %d of batch %d consumed %d slots", pos, b.index, n))
		}
		pos += n
	}
	e.dispatcher.Unlock()

	if pos != used {
		panic(fmt.Sprintf("glthread: batch %d decoded %d slots, %d used", b.index, pos, used))
	}
	b.used, b.count = 0, 0

	e.marks.invalidate(b.index)
	e.stats.batches.Add(1)

	if e.opts.tracer != nil {
		e.opts.tracer.TraceBatch(trace.Record{
			Engine:   e.name,
			Batch:    b.index,
			Seq:      e.seq.Add(1),
			Slots:    used,
			Commands: ids,
			Direct:   direct,
		})
	}
}
