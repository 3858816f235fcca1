// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package conversation runs the two model exchanges of a session: extracting
// axioms from a manuscript and answering questions about it.
//
// Every exchange holds the session's exchange lock, waits on the shared rate
// gate immediately before the outbound call, and commits to session state
// only what the call actually produced. After a commit the session snapshot
// is saved and an event published in the background; Flush waits for that
// work to drain.
//
// Basic usage:
//
//	svc, err := conversation.NewService(provider, g, registry,
//	    conversation.WithRepository(repo))
//	if err != nil {
//	    return err
//	}
//	defer svc.Release()
//
//	st := svc.CreateSession()
//	axioms, err := svc.ExtractAxioms(ctx, st.ID(), doc, core.LanguageEnglish)
//	err = svc.ChatStream(ctx, st.ID(), "Who is the author?", core.LanguageEnglish,
//	    func(fragment string) error {
//	        fmt.Print(fragment)
//	        return nil
//	    })
package conversation
